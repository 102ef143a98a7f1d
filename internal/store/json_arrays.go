package store

import "encoding/json"

func decodeStringArray(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeFloatArray(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeFloatArray(vals []float64) ([]byte, error) {
	return json.Marshal(vals)
}
