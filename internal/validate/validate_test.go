package validate

import (
	"testing"
	"time"
)

func TestID_RejectsEmptyAndNil(t *testing.T) {
	if _, err := ID("affiliate_id", ""); !IsKind(err, Missing) {
		t.Errorf("Expected Missing for empty string, got %v", err)
	}
	if _, err := ID("affiliate_id", nil); !IsKind(err, Missing) {
		t.Errorf("Expected Missing for nil, got %v", err)
	}
	if _, err := ID("affiliate_id", "   "); !IsKind(err, Missing) {
		t.Errorf("Expected Missing for whitespace, got %v", err)
	}
	if _, err := ID("affiliate_id", 42); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for int, got %v", err)
	}
}

func TestID_Trims(t *testing.T) {
	got, err := ID("stock_id", "  ST001  ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "ST001" {
		t.Errorf("Expected trimmed ST001, got %q", got)
	}
}

func TestLowerName_NormalizesCase(t *testing.T) {
	got, err := LowerName("stock_name", "  Ayala Corp ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "ayala corp" {
		t.Errorf("Expected lowercased name, got %q", got)
	}
}

func TestNonNegInt_Bounds(t *testing.T) {
	if _, err := NonNegInt("buy_volume", -1); !IsKind(err, OutOfRange) {
		t.Errorf("Expected OutOfRange for -1, got %v", err)
	}
	got, err := NonNegInt("buy_volume", 0)
	if err != nil || got != 0 {
		t.Errorf("Expected 0 accepted, got %d err %v", got, err)
	}
	// JSON numbers come through as float64
	got, err = NonNegInt("buy_volume", float64(150))
	if err != nil || got != 150 {
		t.Errorf("Expected 150 from integral float, got %d err %v", got, err)
	}
	if _, err := NonNegInt("buy_volume", 1.5); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for fractional, got %v", err)
	}
	if _, err := NonNegInt("buy_volume", "ten"); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for string, got %v", err)
	}
	if _, err := NonNegInt("buy_volume", nil); !IsKind(err, Missing) {
		t.Errorf("Expected Missing for nil, got %v", err)
	}
}

func TestPercent_InclusiveBounds(t *testing.T) {
	for _, ok := range []int{0, 100} {
		got, err := Percent("earnings_percent", ok)
		if err != nil || got != int64(ok) {
			t.Errorf("Expected %d accepted, got %d err %v", ok, got, err)
		}
	}
	for _, bad := range []int{-1, 101, 150} {
		if _, err := Percent("earnings_percent", bad); !IsKind(err, OutOfRange) {
			t.Errorf("Expected OutOfRange for %d, got %v", bad, err)
		}
	}
}

func TestBoolean_RejectsNonBool(t *testing.T) {
	got, err := Boolean("is_active", true)
	if err != nil || !got {
		t.Errorf("Expected true, got %v err %v", got, err)
	}
	if _, err := Boolean("is_active", "true"); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for string, got %v", err)
	}
	if _, err := Boolean("is_active", 1); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for int, got %v", err)
	}
}

func TestCurrency_Membership(t *testing.T) {
	allowed := []string{"PHP", "USD"}
	got, err := Currency("currency", "USD", allowed)
	if err != nil || got != "USD" {
		t.Errorf("Expected USD accepted, got %q err %v", got, err)
	}
	// unsupported currency reports as a type mismatch
	if _, err := Currency("currency", "BTC", allowed); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for unsupported code, got %v", err)
	}
	if _, err := Currency("currency", "", allowed); !IsKind(err, Missing) {
		t.Errorf("Expected Missing for empty, got %v", err)
	}
}

func TestDateValue_Formats(t *testing.T) {
	now := time.Now()
	got, err := DateValue("date", now)
	if err != nil || !got.Equal(now) {
		t.Errorf("Expected time passthrough, got %v err %v", got, err)
	}
	got, err = DateValue("date", "2024-03-01")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
		t.Errorf("Expected 2024-03-01, got %v", got)
	}
	if _, err := DateValue("date", "yesterday"); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for bad format, got %v", err)
	}
	if _, err := DateValue("date", 20240301); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for int, got %v", err)
	}
}

func TestFieldName_ReportsOffendingField(t *testing.T) {
	_, err := ID("message", "")
	if FieldName(err) != "message" {
		t.Errorf("Expected field name message, got %q", FieldName(err))
	}
}
