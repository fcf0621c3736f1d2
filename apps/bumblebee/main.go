//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

// Command bumblebee compiles the negative-exponential activation
// over a random all-negative tensor, simulates it under the
// configured protocol, and reports the error against the plaintext
// reference together with the protocol cost profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Ye-D/OpenBumbleBee/compiler"
	"github.com/Ye-D/OpenBumbleBee/fxp"
	"github.com/Ye-D/OpenBumbleBee/protocol"
	"github.com/Ye-D/OpenBumbleBee/sim"
	"github.com/Ye-D/OpenBumbleBee/tensor"
)

func main() {
	proto := flag.String("protocol", "cheetah", "Protocol (semi2k, cheetah)")
	field := flag.String("field", "FM64", "Ring field (FM32, FM64)")
	parties := flag.Int("parties", 2, "Number of parties")
	noDivSqrt := flag.Bool("disable-div-sqrt-rewrite", false,
		"Keep div/sqrt instead of rewriting to rsqrt")
	seed := flag.Int64("seed", 1, "Input generator seed")
	fVerbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	kind, err := parseKind(*proto)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	ftype, err := parseField(*field)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	desc := protocol.Descriptor{
		Kind:    kind,
		Field:   ftype,
		Parties: *parties,
	}

	var logger *zap.SugaredLogger
	if *fVerbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		defer l.Sync()
		logger = l.Sugar()
	}

	// All-negative input, scaled to exercise the clamp.
	rng := rand.New(rand.NewSource(*seed))
	shape := []int{3, 4, 6}
	x := tensor.New(shape...)
	data := x.Data()
	for i := range data {
		data[i] = -math.Abs(rng.NormFloat64() * 13)
	}

	opts := compiler.NewOptions()
	opts.DisableDivSqrtRewrite = *noDivSqrt

	fn := func(args []*compiler.Value) []*compiler.Value {
		return []*compiler.Value{args[0].Intrinsic("neg_exp")}
	}
	prog, diag, err := compiler.Compile(fn, [][]int{shape}, opts, desc, nil)
	if err != nil {
		log.Fatal(err)
	}
	if *fVerbose {
		fmt.Print(diag.Text)
		for _, sub := range diag.Substitutions {
			fmt.Printf("intrinsic %s at call site %d: nodes %%%d..%%%d\n",
				sub.Name, sub.CallSite, sub.FirstNode, sub.LastNode)
		}
	}
	fmt.Printf("Program: %d nodes, %s\n", len(prog.Nodes), diag.Digest)
	cost := prog.Cost()
	fmt.Printf("Offline: %d triples, %d bit triples, %d edabits, "+
		"%d rounds\n",
		cost.Triples, cost.BitTriples, cost.EdaBits, cost.Rounds)

	s, err := sim.New(desc, logger)
	if err != nil {
		log.Fatal(err)
	}
	outs, err := s.Simulate(context.Background(), prog, x)
	if err != nil {
		log.Fatal(err)
	}

	ref := x.Map(math.Exp)
	diff, err := tensor.Diff(outs[0], ref)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Protocol: %s\n", desc)
	fmt.Printf("Max error:  %g\n", diff.Max)
	fmt.Printf("Mean error: %g\n", diff.Mean)
	fmt.Print(s.Stats().Render())
}

func parseKind(s string) (protocol.Kind, error) {
	switch strings.ToLower(s) {
	case "semi2k":
		return protocol.Semi2k, nil
	case "cheetah":
		return protocol.Cheetah, nil
	default:
		return 0, fmt.Errorf("unknown protocol '%s'", s)
	}
}

func parseField(s string) (fxp.FieldType, error) {
	switch strings.ToUpper(s) {
	case "FM32":
		return fxp.FM32, nil
	case "FM64":
		return fxp.FM64, nil
	case "FM128":
		return fxp.FM128, nil
	default:
		return 0, fmt.Errorf("unknown field '%s'", s)
	}
}
