package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

// printError renders err for the terminal. Structured failures get a
// recovery hint for their kind.
func printError(w io.Writer, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ui.Err(err.Error()))
		return
	}
	fmt.Fprintln(w, ui.Err(ae.Error()))
	if hint := errorHint(ae); hint != "" {
		fmt.Fprintln(w, ui.Hint(hint))
	}
}

const allowanceHint = "The GAME approval stays in place; a later purchase reuses or replaces it."

func errorHint(e *apperr.Error) string {
	// Past the purchase phase the approval has been sent, whatever went wrong.
	if e.Phase == apperr.PhasePurchase {
		switch e.Kind {
		case apperr.KindUserRejected:
			return "The purchase was not sent, but the GAME approval was and stays in place. Run the command again to retry."
		case apperr.KindWrongNetwork:
			return "Switch back to the configured network and run the command again. " + allowanceHint
		}
		return allowanceHint
	}
	switch e.Kind {
	case apperr.KindWalletUnavailable:
		return "Import a signing wallet with `w3fund wallet import <name>` and select it with `w3fund wallet use <name>`."
	case apperr.KindUserRejected:
		return "Nothing was sent. Run the command again to retry."
	case apperr.KindWrongNetwork:
		return "Point w3fund at the right network with `w3fund config set network <name>` or pass --rpc."
	case apperr.KindValidation:
		if e.Phase == apperr.PhaseValidate {
			return "Check the input and try again. Nothing was sent."
		}
	case apperr.KindRemoteRejected:
		switch e.Phase {
		case apperr.PhaseList, apperr.PhasePricing, apperr.PhaseBalance, apperr.PhaseQuote:
			return "Check the RPC endpoint with `w3fund rpc bench` and the addresses with `w3fund config show`."
		}
	}
	return ""
}
