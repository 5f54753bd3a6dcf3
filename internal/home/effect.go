package home

// Effect is a one-shot instruction for the presentation layer. Effects are
// not part of ViewState and are delivered once.
type Effect interface {
	isEffect()
}

type (
	ShowToast struct {
		Message string
	}

	NavigateToTransaction struct {
		TransactionID string
	}

	NavigateToRecipient struct {
		RecipientID string
	}

	ShowError struct {
		Message string
	}
)

func (ShowToast) isEffect()             {}
func (NavigateToTransaction) isEffect() {}
func (NavigateToRecipient) isEffect()   {}
func (ShowError) isEffect()             {}

// EffectName returns a short name for logs and wire formats.
func EffectName(e Effect) string {
	switch e.(type) {
	case ShowToast:
		return "show_toast"
	case NavigateToTransaction:
		return "navigate_to_transaction"
	case NavigateToRecipient:
		return "navigate_to_recipient"
	case ShowError:
		return "show_error"
	default:
		return "unknown"
	}
}
