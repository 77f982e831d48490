package model

import "context"

// Selection is the result of an input selection: the accumulated value and, per transaction,
// the chosen output indices. Transactions keep the order in which they were first selected.
type Selection struct {
	Total   int64
	order   []string
	outputs map[string][]int
}

func NewSelection() *Selection {
	return &Selection{
		outputs: make(map[string][]int),
	}
}

func (s *Selection) Add(txID string, index int, value int64) {
	if _, ok := s.outputs[txID]; !ok {
		s.order = append(s.order, txID)
	}

	s.outputs[txID] = append(s.outputs[txID], index)
	s.Total += value
}

// TxIDs returns the selected transaction ids in selection order.
func (s *Selection) TxIDs() []string {
	return s.order
}

func (s *Selection) Outputs(txID string) []int {
	return s.outputs[txID]
}

// Len returns the number of selected outputs.
func (s *Selection) Len() int {
	n := 0
	for _, indices := range s.outputs {
		n += len(indices)
	}

	return n
}

// OutputSelector picks unspent outputs of address worth at least amount. When the address
// cannot cover amount, the returned selection holds everything it owns and Total < amount.
type OutputSelector interface {
	FindSpendableOutputs(ctx context.Context, address string, amount int64) (*Selection, error)
}
