package filter

import (
	"errors"
	"testing"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
)

func TestBuilderKeepsParameterOrder(t *testing.T) {
	f, err := NewBuilder().
		FilterID("default").
		AddParameter(NameEqualsParam("DocumentNo", "1000")).
		AddParameter(NameOperatorValueParam("IsActive", OperatorEqual, "Y")).
		AddParameter(NameOperatorValueParam("GrandTotal", OperatorGreater, 100)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	params := f.Params()
	if len(params) != 3 {
		t.Fatalf("got %d params, want 3", len(params))
	}
	wantOrder := []string{"DocumentNo", "IsActive", "GrandTotal"}
	for i, want := range wantOrder {
		if params[i].FieldName() != want {
			t.Errorf("params[%d] = %s, want %s", i, params[i].FieldName(), want)
		}
	}
}

func TestBuilderRejectsDuplicateParameter(t *testing.T) {
	_, err := NewBuilder().
		FilterID("default").
		AddParameter(NameEqualsParam("DocumentNo", "1000")).
		AddParameter(NameEqualsParam("DocumentNo", "2000")).
		Build()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Build() error = %v, want validation error", err)
	}
}

func TestBuilderRequiresFilterID(t *testing.T) {
	_, err := NewBuilder().AddParameter(NameEqualsParam("A", 1)).Build()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Build() error = %v, want validation error", err)
	}
}

func TestParamNotFound(t *testing.T) {
	f, err := SingleParameterFilter("default", "DocumentNo", OperatorEqual, "1000")
	if err != nil {
		t.Fatalf("SingleParameterFilter() error = %v", err)
	}

	if _, err := f.Param("Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Param(Missing) error = %v, want not found", err)
	}
	if _, err := f.Param("DocumentNo"); err != nil {
		t.Errorf("Param(DocumentNo) error = %v", err)
	}
}

func TestInternalParametersHidden(t *testing.T) {
	f, err := NewBuilder().
		FilterID("default").
		AddParameter(NameEqualsParam("DocumentNo", "1000")).
		AddInternalParameter(NameEqualsParam("AD_Client_ID", 10)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !f.IsInternalParameter("AD_Client_ID") {
		t.Error("AD_Client_ID should be internal")
	}
	if f.IsInternalParameter("DocumentNo") {
		t.Error("DocumentNo should not be internal")
	}
	// both kinds are visible through Param
	if _, err := f.Param("AD_Client_ID"); err != nil {
		t.Errorf("Param(AD_Client_ID) error = %v", err)
	}
}

func TestParamEqualityCoversRangeValue(t *testing.T) {
	between := func(valueTo any) Param {
		return NewParam().
			FieldName("DateOrdered").
			Operator(OperatorBetween).
			Value("value1").
			ValueTo(valueTo).
			MustBuild()
	}

	if !between("value2").Equal(between("value2")) {
		t.Error("identical BETWEEN params should be equal")
	}
	if between("value2").Equal(between("value3")) {
		t.Error("BETWEEN params differing only in valueTo should not be equal")
	}
}

func TestParamValueAsIntSlice(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []int
		wantErr bool
	}{
		{name: "ints", value: []any{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "scalar becomes single element", value: 7, want: []int{7}},
		{name: "numeric strings", value: []any{"4", "5"}, want: []int{4, 5}},
		{name: "lookup values", value: []any{datatypes.LookupValue{ID: 9, Caption: "Nine"}}, want: []int{9}},
		{name: "malformed", value: []any{"x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NameOperatorValueParam("M_Product_ID", OperatorInArray, tt.value)
			got, err := p.ValueAsIntSlice()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("ValueAsIntSlice() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValueAsIntSlice() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParamValueAsBoolReadsLegacyYN(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{value: true, want: true},
		{value: "Y", want: true},
		{value: "N", want: false},
		{value: "true", want: true},
	}
	for _, tt := range tests {
		p := NameEqualsParam("IsActive", tt.value)
		if got := p.ValueAsBool(!tt.want); got != tt.want {
			t.Errorf("ValueAsBool(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
