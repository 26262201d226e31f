package gateway

// Result is the outcome of a write operation. Operations always return a
// Result; they never panic and never return a bare error.
type Result struct {
	Success bool   `json:"success"`
	AssetID string `json:"asset_id,omitempty"`
	Digest  string `json:"digest,omitempty"`
	// Message is the user-facing failure text, or an advisory note on a
	// partially successful operation.
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func succeeded(assetID, digest string) Result {
	return Result{Success: true, AssetID: assetID, Digest: digest}
}

func failed(err error) Result {
	return Result{Success: false, Message: UserMessage(err), Err: err}
}
