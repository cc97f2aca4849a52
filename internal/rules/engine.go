package rules

// Run evaluates every enabled config against inputs.
//
// Results are grouped by config in the order supplied. Within a rule, per file results follow input order and
// participant level results follow the order participants first appear in inputs. Severity comes from the config.
func Run(configs []Config, inputs []Input) []Result {
	results := []Result{}

	for _, c := range configs {
		if !c.Enabled || c.Params == nil {
			continue
		}

		r, ok := registry[c.Key()]
		if !ok {
			continue
		}

		for _, res := range r.check(c.Params, inputs) {
			res.RuleKey = c.Key()
			res.Severity = c.Severity
			results = append(results, res)
		}
	}

	return results
}
