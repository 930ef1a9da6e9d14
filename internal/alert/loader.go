package alert

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// LoadError is a rule loading error, positioned when the CUE source
// position is known.
type LoadError struct {
	Rule    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: rule %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Rule, e.Message)
	}
	if e.Rule != "" {
		return fmt.Sprintf("rule %s: %s", e.Rule, e.Message)
	}
	return e.Message
}

// LoadRules reads every .cue file in dir and returns the rules declared
// under the top-level "rule" struct, keyed by their CUE label:
//
//	rule: saldo_operativa: {
//		kind:      "low_balance"
//		severity:  "warning"
//		threshold: "5.000,00 €"
//	}
//
// All errors are collected before returning, so one bad rule does not
// hide the next.
func LoadRules(dir string) ([]Rule, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Message: fmt.Sprintf("not a directory: %s", dir)}}
	}
	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("scanning %s: %v", dir, err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Message: fmt.Sprintf("no CUE files in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	rulesVal := value.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return nil, []error{&LoadError{Message: "no top-level \"rule\" struct found"}}
	}
	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("iterating rules: %v", err)}}
	}

	var rules []Rule
	var errs []error
	for iter.Next() {
		r, err := compileRule(iter.Label(), iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Message: "no rules declared"})
	}
	return rules, errs
}

func compileRule(label string, v cue.Value) (Rule, error) {
	r := Rule{ID: label}

	kind, err := stringField(v, "kind", true)
	if err != nil {
		return Rule{}, positioned(label, v, err)
	}
	r.Kind = Kind(kind)

	severity, err := stringField(v, "severity", true)
	if err != nil {
		return Rule{}, positioned(label, v, err)
	}
	r.Severity = treasury.Severity(severity)

	if s, err := stringField(v, "threshold", false); err != nil {
		return Rule{}, positioned(label, v, err)
	} else if s != "" {
		r.Threshold, err = money.Parse(s)
		if err != nil {
			return Rule{}, &LoadError{Rule: label, Message: fmt.Sprintf("threshold: %v", err), Pos: v.Pos()}
		}
	}
	if r.MaxUtilizationBps, err = intField(v, "max_utilization_bps"); err != nil {
		return Rule{}, positioned(label, v, err)
	}
	days, err := intField(v, "days_ahead")
	if err != nil {
		return Rule{}, positioned(label, v, err)
	}
	r.DaysAhead = int(days)
	if r.AccountID, err = stringField(v, "account_id", false); err != nil {
		return Rule{}, positioned(label, v, err)
	}

	if err := r.Validate(); err != nil {
		return Rule{}, &LoadError{Rule: label, Message: err.Error(), Pos: v.Pos()}
	}
	return r, nil
}

func stringField(v cue.Value, name string, required bool) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		if required {
			return "", fmt.Errorf("%s is required", name)
		}
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", fmt.Errorf("%s: %v", name, err)
	}
	return s, nil
}

func intField(v cue.Value, name string) (int64, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return 0, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return n, nil
}

func positioned(label string, v cue.Value, err error) error {
	return &LoadError{Rule: label, Message: err.Error(), Pos: v.Pos()}
}

func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
