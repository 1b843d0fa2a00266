package validator

import "testing"

type sample struct {
	Name string `validate:"required,notblank"`
	Age  *int   `validate:"omitempty,min=0,max=150"`
}

func TestValidate(t *testing.T) {
	v := New()
	age := 30
	neg := -1

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Name: "Amoxicillin", Age: &age}, false},
		{"no age", sample{Name: "Amoxicillin"}, false},
		{"empty name", sample{}, true},
		{"blank name", sample{Name: "   "}, true},
		{"negative age", sample{Name: "Amoxicillin", Age: &neg}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
