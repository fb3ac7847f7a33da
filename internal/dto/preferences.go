package dto

import "encoding/json"

type PutPreferenceRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// PreferenceResponse carries the stored blob; Value is JSON null when the
// key has never been written.
type PreferenceResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}
