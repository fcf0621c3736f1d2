//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package sim

import (
	"fmt"
	"strings"

	"github.com/markkurossi/tabulate"
)

// FileSize formats a transfer volume in SI units.
type FileSize uint64

func (s FileSize) String() string {
	if s > 1000*1000*1000*1000 {
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	} else if s > 1000*1000*1000 {
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	} else if s > 1000*1000 {
		return fmt.Sprintf("%dMB", s/(1000*1000))
	} else if s > 1000 {
		return fmt.Sprintf("%dkB", s/1000)
	} else {
		return fmt.Sprintf("%dB", s)
	}
}

// OpStats accumulates one operation kind's protocol costs over a
// simulation, as observed by party 0.
type OpStats struct {
	Count      int
	Rounds     int
	Words      int
	Triples    int
	MatTriples int
	BitTriples int
	EdaBits    int
	BitPairs   int
	TruncPairs int
}

// ExecStats records per-operation protocol costs for one simulated
// program execution.
type ExecStats struct {
	ops   map[string]*OpStats
	order []string
}

func newExecStats() *ExecStats {
	return &ExecStats{
		ops: make(map[string]*OpStats),
	}
}

func (s *ExecStats) get(op string) *OpStats {
	st, ok := s.ops[op]
	if !ok {
		st = new(OpStats)
		s.ops[op] = st
		s.order = append(s.order, op)
	}
	return st
}

// Op returns op's accumulated stats, or nil if the operation never
// ran.
func (s *ExecStats) Op(op string) *OpStats {
	return s.ops[op]
}

// Rounds returns the total number of communication rounds.
func (s *ExecStats) Rounds() int {
	var total int
	for _, st := range s.ops {
		total += st.Rounds
	}
	return total
}

// Render formats the stats as a profiling report.
func (s *ExecStats) Render() string {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Count").SetAlign(tabulate.MR)
	tab.Header("Rounds").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)
	tab.Header("Triples").SetAlign(tabulate.MR)
	tab.Header("MatTriples").SetAlign(tabulate.MR)
	tab.Header("BitTriples").SetAlign(tabulate.MR)
	tab.Header("EdaBits").SetAlign(tabulate.MR)
	tab.Header("BitPairs").SetAlign(tabulate.MR)
	tab.Header("TruncPairs").SetAlign(tabulate.MR)

	var total OpStats
	for _, op := range s.order {
		st := s.ops[op]
		row := tab.Row()
		row.Column(op)
		row.Column(fmt.Sprintf("%d", st.Count))
		row.Column(fmt.Sprintf("%d", st.Rounds))
		row.Column(FileSize(uint64(st.Words) * 8).String())
		row.Column(fmt.Sprintf("%d", st.Triples))
		row.Column(fmt.Sprintf("%d", st.MatTriples))
		row.Column(fmt.Sprintf("%d", st.BitTriples))
		row.Column(fmt.Sprintf("%d", st.EdaBits))
		row.Column(fmt.Sprintf("%d", st.BitPairs))
		row.Column(fmt.Sprintf("%d", st.TruncPairs))

		total.Count += st.Count
		total.Rounds += st.Rounds
		total.Words += st.Words
		total.Triples += st.Triples
		total.MatTriples += st.MatTriples
		total.BitTriples += st.BitTriples
		total.EdaBits += st.EdaBits
		total.BitPairs += st.BitPairs
		total.TruncPairs += st.TruncPairs
	}
	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.Count)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.Rounds)).SetFormat(tabulate.FmtBold)
	row.Column(FileSize(uint64(total.Words) * 8).String()).
		SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.Triples)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.MatTriples)).
		SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.BitTriples)).
		SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.EdaBits)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.BitPairs)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.TruncPairs)).
		SetFormat(tabulate.FmtBold)

	var sb strings.Builder
	tab.Print(&sb)
	return sb.String()
}
