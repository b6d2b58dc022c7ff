package translator

import (
	"context"
	"fmt"

	"github.com/valpere/mdtrans/internal/placeholder"
)

// Protecting hides code and link targets behind [PHn] markers before the
// text reaches next, and puts them back afterwards.
type Protecting struct {
	next Translator
}

func NewProtecting(next Translator) *Protecting {
	return &Protecting{next: next}
}

// ProtectInstructions is the prompt sentence that must accompany text
// translated through Protecting.
func ProtectInstructions() string {
	return placeholder.InstructionHint()
}

func (p *Protecting) Translate(ctx context.Context, text string) (string, error) {
	protected, markers := placeholder.Protect(text)
	if len(markers) == 0 {
		return p.next.Translate(ctx, text)
	}

	translated, err := p.next.Translate(ctx, protected)
	if err != nil {
		return "", err
	}

	if missing := placeholder.Validate(translated, markers); len(missing) > 0 {
		return "", processing(1, fmt.Errorf("translation dropped %d protected segment(s): %v", len(missing), missing))
	}
	return placeholder.Restore(translated, markers), nil
}
