package formulas_test

import (
	"log/slog"
	"testing"

	"github.com/zephyrtronium/formulas"
)

func FuzzParse(f *testing.F) {
	f.Add("2+3*4")
	f.Add("2+(3*4")
	f.Add("if(1<2?3:4)")
	f.Add("max(1,min(2,3))e-2")
	f.Add("1×2")
	ctx := formulas.NewContext(formulas.Logger(slog.New(slog.DiscardHandler)))
	f.Fuzz(func(t *testing.T, s string) {
		x, err := formulas.Parse(s)
		if err != nil {
			return
		}
		if x.Source() != s {
			t.Errorf("source %q of %q", x.Source(), s)
		}
		_ = x.String()
		x.Eval(ctx)
	})
}
