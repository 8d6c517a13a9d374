package validation

import (
	"strings"
	"testing"
)

func TestValidateWorkerCount_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		wantErr bool
	}{
		{"zero workers", 0, true},
		{"negative workers", -1, true},
		{"minimum valid", 1, false},
		{"normal value", 5, false},
		{"maximum valid", 20, false},
		{"above maximum", 21, true},
		{"way above maximum", 100, true},
		{"very negative", -999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkerCount(tt.workers)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkerCount(%d) error = %v, wantErr %v", tt.workers, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "worker") {
				t.Errorf("Error message should mention 'worker': %v", err)
			}
		})
	}
}

func TestValidateDocumentKind_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"valid all", "all", false},
		{"valid invoice", "invoice", false},
		{"valid order", "order", false},
		{"valid credit note", "credit_note", false},
		{"uppercase ALL", "ALL", true},         // Case-sensitive
		{"uppercase Invoice", "Invoice", true}, // Case-sensitive
		{"hyphenated", "credit-note", true},
		{"invalid kind", "quote", true},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"with spaces", " invoice ", true}, // Doesn't trim
		{"partial match", "inv", true},
		{"typo", "invoise", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentKind(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentKind(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "kind") {
				t.Errorf("Error message should mention 'kind': %v", err)
			}
		})
	}
}

func TestValidateNonEmptyString_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"normal string", "test", false},
		{"empty string", "", true},
		{"single space", " ", false},          // Only checks empty, not whitespace
		{"multiple spaces", "   ", false},     // Only checks empty
		{"tab", "\t", false},                  // Only checks empty
		{"newline", "\n", false},              // Only checks empty
		{"mixed whitespace", " \t\n ", false}, // Only checks empty
		{"string with leading space", " test", false},
		{"string with trailing space", "test ", false},
		{"string with internal space", "test string", false},
		{"single char", "a", false},
		{"unicode", "测试", false},
		{"very long string", strings.Repeat("a", 10000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonEmptyString("test field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNonEmptyString(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "test field") {
				t.Errorf("Error message should mention field name: %v", err)
			}
		})
	}
}

func TestValidateNonEmptyString_FieldNames(t *testing.T) {
	// Test that field name appears in error message
	tests := []struct {
		fieldName string
	}{
		{"email"},
		{"password"},
		{"document number"},
		{"file path"},
		{""}, // Empty field name
	}

	for _, tt := range tests {
		t.Run(tt.fieldName, func(t *testing.T) {
			err := ValidateNonEmptyString(tt.fieldName, "")
			if err == nil {
				t.Error("Expected error for empty string")
				return
			}
			if tt.fieldName != "" && !strings.Contains(err.Error(), tt.fieldName) {
				t.Errorf("Error message should contain field name %q: %v", tt.fieldName, err)
			}
		})
	}
}

func TestValidateDocumentID_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", true},
		{"single char", "a", false},
		{"uuid style", "3f8b2a1c-9d7e-4f60-a2b5-6c1d8e9f0a2b", false},
		{"prefixed", "doc_12345", false},
		{"leading space", " doc_12345", true},
		{"internal space", "doc 12345", true},
		{"path traversal", "../secrets", true},
		{"url path", "documents/1", true},
		{"unicode", "文档-1", false}, // Not restricted beyond spaces and slashes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHTTPMethod_CaseInsensitivity(t *testing.T) {
	// Methods are normalized to uppercase before checking
	methods := []string{"get", "Get", "GET", "pOsT", "delete"}

	for _, method := range methods {
		if err := ValidateHTTPMethod(method); err != nil {
			t.Errorf("ValidateHTTPMethod(%q) should be valid in any case: %v", method, err)
		}
	}
}

func TestValidateHTTPMethod_InvalidCases(t *testing.T) {
	invalid := []string{
		"HEAD",
		"OPTIONS",
		"TRACE",
		"CONNECT",
		"FETCH",
		"G ET",
		"GET ",
		"123",
		"",
	}

	for _, method := range invalid {
		if err := ValidateHTTPMethod(method); err == nil {
			t.Errorf("ValidateHTTPMethod(%q) should return error", method)
		}
	}
}

func TestValidation_ErrorMessages(t *testing.T) {
	// Verify error messages are helpful
	tests := []struct {
		name     string
		validate func() error
		wantIn   []string
	}{
		{
			name:     "document ID error mentions ID",
			validate: func() error { return ValidateDocumentID("") },
			wantIn:   []string{"document", "ID"},
		},
		{
			name:     "worker count error mentions range",
			validate: func() error { return ValidateWorkerCount(100) },
			wantIn:   []string{"worker"},
		},
		{
			name:     "kind error mentions valid kinds",
			validate: func() error { return ValidateDocumentKind("invalid") },
			wantIn:   []string{"kind", "invoice"},
		},
		{
			name:     "method error lists allowed methods",
			validate: func() error { return ValidateHTTPMethod("BREW") },
			wantIn:   []string{"method", "GET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate()
			if err == nil {
				t.Error("Expected error")
				return
			}

			errMsg := strings.ToLower(err.Error())
			for _, want := range tt.wantIn {
				if !strings.Contains(errMsg, strings.ToLower(want)) {
					t.Errorf("Error message should contain %q: %v", want, err)
				}
			}
		})
	}
}

func TestValidation_ConcurrentAccess(t *testing.T) {
	// Verify validation functions are safe for concurrent use
	done := make(chan bool)

	for i := 0; i < 100; i++ {
		go func(id int) {
			ValidateDocumentID("doc_1")
			ValidateWorkerCount(id % 21)
			ValidateDocumentKind("invoice")
			ValidateNonEmptyString("test", "field")
			done <- true
		}(i)
	}

	for i := 0; i < 100; i++ {
		<-done
	}
	// Should not panic or race
}
