package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/coach/internal/content"
	"github.com/aretw0/coach/pkg/adapters/file"
	"github.com/aretw0/coach/pkg/dsl"
	"github.com/aretw0/coach/pkg/table"
)

func build(t *testing.T, b *dsl.Builder) *table.Table {
	t.Helper()
	loader, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	tbl, err := table.Build(loader)
	if err != nil {
		t.Fatalf("table.Build() failed: %v", err)
	}
	return tbl
}

func TestValidateTable(t *testing.T) {
	// Scenario A: Clean table
	// greeting -> a -> greeting
	clean := dsl.New()
	clean.Greeting("Hi").Option("A", "a")
	clean.Add("a").Say("A").Home()
	clean.Fallback("Sorry")

	report := ValidateTable(build(t, clean))
	if !report.OK() {
		t.Errorf("Scenario A (Clean) reported issues: %v", report.Warnings())
	}
	if err := report.Err(true); err != nil {
		t.Errorf("Scenario A (Clean) strict failed: %v", err)
	}

	// Scenario B: Every kind of issue
	// greeting -> ghost (dangling), orphan (unreachable), b (no home)
	broken := dsl.New()
	broken.Greeting("Hi").Option("Ghost", "ghost").Option("B", "b")
	broken.Add("b").Say("B").Option("Again", "b")
	broken.Add("orphan").Say("Nobody links here").Home()
	broken.Fallback("Sorry")

	report = ValidateTable(build(t, broken))
	if len(report.Dangling) != 1 || report.Dangling[0].Target != "ghost" {
		t.Errorf("Expected dangling ghost, got %v", report.Dangling)
	}
	if len(report.Unreachable) != 1 || report.Unreachable[0] != "orphan" {
		t.Errorf("Expected unreachable orphan, got %v", report.Unreachable)
	}
	if len(report.NoDirectHome) != 1 || report.NoDirectHome[0] != "b" {
		t.Errorf("Expected b without home, got %v", report.NoDirectHome)
	}

	if err := report.Err(false); err != nil {
		t.Errorf("Non-strict mode should only warn, got %v", err)
	}
	err := report.Err(true)
	if !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("Expected ErrInvalidTable, got %v", err)
	}
	if !strings.Contains(err.Error(), "found 3 issues") {
		t.Errorf("Unexpected error text: %v", err)
	}
}

func TestValidateTable_Builtin(t *testing.T) {
	loader, err := file.Parse(content.Responses)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := table.Build(loader)
	if err != nil {
		t.Fatal(err)
	}

	report := ValidateTable(tbl)
	if len(report.Dangling) != 4 {
		t.Errorf("Expected the 4 known dangling references, got %v", report.Dangling)
	}
	if len(report.Unreachable) != 0 {
		t.Errorf("Expected every topic to be reachable, got %v", report.Unreachable)
	}
	if len(report.NoDirectHome) != 0 {
		t.Errorf("Expected every topic to offer a way home, got %v", report.NoDirectHome)
	}
	if report.Err(false) != nil {
		t.Error("Builtin table must pass non-strict validation")
	}
}
