//
// Copyright (c) 2026 The OpenBumbleBee Authors
//
// All rights reserved.
//

package ir

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// constPreview limits how many constant elements the rendering
// spells out.
const constPreview = 8

func fmtShape(shape []int) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "tensor<" + strings.Join(parts, "x") + ">"
}

func fmtScalar(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// body renders the program without the digest trailer.
func (p *Program) body() string {
	var b strings.Builder

	fmt.Fprintf(&b, "program protocol=%s field=%s parties=%d\n",
		p.Desc.Kind, p.Desc.Field, p.Desc.Parties)

	for id, n := range p.Nodes {
		fmt.Fprintf(&b, "%%%d = %s(", id, n.Op)
		switch n.Op {
		case Const:
			data := n.Value.Data()
			for i, v := range data {
				if i >= constPreview {
					fmt.Fprintf(&b, ", ... numel=%d", len(data))
					break
				}
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmtScalar(v))
			}

		case AddConst, MulConst:
			fmt.Fprintf(&b, "%%%d, %s", n.Args[0], fmtScalar(n.Scalar))

		default:
			for i, a := range n.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%%%d", a)
			}
		}
		fmt.Fprintf(&b, ") : %s\n", fmtShape(n.Shape))
	}

	b.WriteString("return")
	for i, id := range p.Outputs {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, " %%%d", id)
	}
	if len(p.Outputs) > 0 {
		fmt.Fprintf(&b, " : %s", fmtShape(p.Nodes[p.Outputs[0]].Shape))
	}
	b.WriteString("\n")

	return b.String()
}

// Digest returns a stable blake3 fingerprint of the program text.
func (p *Program) Digest() string {
	sum := blake3.Sum256([]byte(p.body()))
	return "blake3:" + hex.EncodeToString(sum[:16])
}

// Render returns a deterministic textual form of the program,
// suitable for diffing across compiler versions and options.
func (p *Program) Render() string {
	body := p.body()
	return body + "digest: " + p.Digest() + "\n"
}
