package feeplan

import "testing"

func TestValidateComponent(t *testing.T) {
	valid := func() FeeComponent {
		return FeeComponent{
			Kind:           KindManagement,
			CalcMethod:     CalcPercentBps,
			Frequency:      FreqQuarterly,
			BasisReference: BasisCommitment,
			Currency:       "USD",
		}
	}

	tests := []struct {
		name   string
		mutate func(*FeeComponent)
		wantOK bool
	}{
		{"valid", func(*FeeComponent) {}, true},
		{"bad kind", func(c *FeeComponent) { c.Kind = "platform" }, false},
		{"bad calcMethod", func(c *FeeComponent) { c.CalcMethod = "percent" }, false},
		{"bad frequency", func(c *FeeComponent) { c.Frequency = "weekly" }, false},
		{"bad basis", func(c *FeeComponent) { c.BasisReference = "gav" }, false},
		{"empty frequency defaults", func(c *FeeComponent) { c.Frequency = "" }, true},
		{"empty currency defaults", func(c *FeeComponent) { c.Currency = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			msg := validateComponent(&c)
			if ok := msg == ""; ok != tt.wantOK {
				t.Errorf("validateComponent = %q, wantOK %v", msg, tt.wantOK)
			}
		})
	}

	c := valid()
	c.Frequency = ""
	c.Currency = ""
	if msg := validateComponent(&c); msg != "" {
		t.Fatal(msg)
	}
	if c.Frequency != FreqOneTime || c.Currency != "USD" {
		t.Errorf("defaults not applied: frequency=%s currency=%s", c.Frequency, c.Currency)
	}
}
