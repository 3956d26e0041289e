package abrogation

import (
	"context"

	"github.com/agenthands/kbguard/internal/core/model"
)

type registryCall struct {
	Reference string
	Threshold float64
	Limit     int
}

type MockRegistry struct {
	Results map[string][]model.Abrogation
	Errs    map[string]error
	Calls   []registryCall
}

func (m *MockRegistry) FindAbrogations(ctx context.Context, reference string, threshold float64, limit int) ([]model.Abrogation, error) {
	m.Calls = append(m.Calls, registryCall{reference, threshold, limit})
	if err := m.Errs[reference]; err != nil {
		return nil, err
	}
	return m.Results[reference], nil
}
