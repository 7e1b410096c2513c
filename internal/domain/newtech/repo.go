package newtech

import "context"

// Source loads the NTAP and TPT program datasets.
type Source interface {
	Load(ctx context.Context) (*NtapData, *TptData, error)
}
