package ledger

import (
	"fmt"
	"strconv"
)

type ArgumentKind string

const (
	ArgObject       ArgumentKind = "object"
	ArgPure         ArgumentKind = "pure"
	ArgResult       ArgumentKind = "result"
	ArgNestedResult ArgumentKind = "nested_result"
)

// Argument is one input of a command in a transaction plan.
type Argument struct {
	Kind        ArgumentKind `json:"kind"`
	ObjectID    string       `json:"object_id,omitempty"`
	PureType    string       `json:"type,omitempty"`
	Value       any          `json:"value,omitempty"`
	Command     int          `json:"command,omitempty"`
	ResultIndex int          `json:"result_index,omitempty"`
}

func Object(id string) Argument {
	return Argument{Kind: ArgObject, ObjectID: id}
}

func PureU8(v uint8) Argument {
	return Argument{Kind: ArgPure, PureType: "u8", Value: v}
}

// PureU64 carries the value as a decimal string so it survives JSON clients
// without 64-bit integers.
func PureU64(v uint64) Argument {
	return Argument{Kind: ArgPure, PureType: "u64", Value: strconv.FormatUint(v, 10)}
}

func PureBool(v bool) Argument {
	return Argument{Kind: ArgPure, PureType: "bool", Value: v}
}

func PureString(v string) Argument {
	return Argument{Kind: ArgPure, PureType: "string", Value: v}
}

func PureAddress(v string) Argument {
	return Argument{Kind: ArgPure, PureType: "address", Value: NormalizeID(v)}
}

func PureID(v string) Argument {
	return Argument{Kind: ArgPure, PureType: "id", Value: NormalizeID(v)}
}

type CommandKind string

const (
	CommandMoveCall   CommandKind = "move_call"
	CommandSplitCoins CommandKind = "split_coins"
)

// Command is a single step of a programmable transaction.
type Command struct {
	Kind          CommandKind `json:"kind"`
	Target        string      `json:"target,omitempty"`
	TypeArguments []string    `json:"type_arguments,omitempty"`
	Arguments     []Argument  `json:"arguments,omitempty"`
	Coin          *Argument   `json:"coin,omitempty"`
	Amounts       []Argument  `json:"amounts,omitempty"`
}

// TransactionPlan is the structured, unsigned form of a transaction. It is
// handed to the signer, which owns keys and serialization.
type TransactionPlan struct {
	Sender    string    `json:"sender,omitempty"`
	GasBudget uint64    `json:"gas_budget"`
	Commands  []Command `json:"commands"`
}

func NewTransactionPlan(sender string, gasBudget uint64) *TransactionPlan {
	return &TransactionPlan{Sender: sender, GasBudget: gasBudget}
}

// MoveCall appends a call and returns a reference to its result.
func (p *TransactionPlan) MoveCall(target string, typeArguments []string, args ...Argument) Argument {
	p.Commands = append(p.Commands, Command{
		Kind:          CommandMoveCall,
		Target:        target,
		TypeArguments: typeArguments,
		Arguments:     args,
	})
	return Argument{Kind: ArgResult, Command: len(p.Commands) - 1}
}

// SplitCoins appends a split of coin into the given amounts and returns the
// first resulting coin.
func (p *TransactionPlan) SplitCoins(coin Argument, amounts ...Argument) Argument {
	p.Commands = append(p.Commands, Command{
		Kind:    CommandSplitCoins,
		Coin:    &coin,
		Amounts: amounts,
	})
	return Argument{Kind: ArgNestedResult, Command: len(p.Commands) - 1, ResultIndex: 0}
}

// MoveTarget formats package::module::function.
func MoveTarget(pkg, module, function string) string {
	return fmt.Sprintf("%s::%s::%s", pkg, module, function)
}
