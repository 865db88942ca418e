package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/w3fund/internal/orchestrate"
)

var stepLabels = map[string]string{
	"create":     "Create campaign",
	"contribute": "Contribute",
	"finalize":   "Finalize",
	"approve":    "Approve GAME",
	"purchase":   "Buy item",
}

// Progress prints one line per orchestration event.
type Progress struct {
	out   io.Writer
	txURL func(hash string) string
}

// NewProgress writes to out. txURL may be nil or return "" when the network
// has no explorer.
func NewProgress(out io.Writer, txURL func(hash string) string) *Progress {
	return &Progress{out: out, txURL: txURL}
}

// Report renders e. It has the orchestrate.Reporter signature.
func (p *Progress) Report(e orchestrate.Event) {
	fmt.Fprintln(p.out, p.Line(e))
}

// Line is the rendered form of e.
func (p *Progress) Line(e orchestrate.Event) string {
	label := stepLabels[string(e.Step)]
	if label == "" {
		label = string(e.Step)
	}
	hash := e.Hash.Hex()

	var sb strings.Builder
	switch e.Phase {
	case orchestrate.Submitted:
		sb.WriteString(StyleWarning.Render("… " + label + " submitted"))
		sb.WriteString("  " + Addr(TruncateAddr(hash)))
		sb.WriteString("  " + Meta("waiting for confirmation"))
	case orchestrate.Confirmed:
		sb.WriteString(Success(label + " confirmed"))
		sb.WriteString("  " + Meta(fmt.Sprintf("block %d", e.BlockNumber)))
		if p.txURL != nil {
			if u := p.txURL(hash); u != "" {
				sb.WriteString("  " + Meta(u))
			}
		}
	default:
		sb.WriteString(Meta(label + " " + string(e.Phase)))
	}
	return sb.String()
}
