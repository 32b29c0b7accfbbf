package SphereHelmholtz

import (
	"fmt"
	"os"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/notargets/gospectral/utils"
)

// Write stores the result as YAML.
func (r *Result) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadResult loads a result written by Write.
func ReadResult(path string) (r *Result, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r = &Result{}
	if err = yaml.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return
}

// Check compares the result against named upper bounds: L2Error, MaxError
// and Residual.
func (r *Result) Check(tolerances map[string]float64) error {
	keys := make([]string, 0, len(tolerances))
	for k := range tolerances {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var have float64
		switch k {
		case "L2Error":
			have = r.L2Error
		case "MaxError":
			have = r.MaxError
		case "Residual":
			have = r.Residual
		default:
			return utils.NewConfigurationError("Check", "unknown tolerance %q", k)
		}
		if !(have <= tolerances[k]) {
			return fmt.Errorf("%s = %.3g exceeds the tolerance %.3g", k, have, tolerances[k])
		}
	}
	return nil
}

func (r *Result) Print() {
	fmt.Printf("%s\t= Run\n", r.RunID)
	fmt.Printf("[%d, %d]\t\t= N\n", r.N[0], r.N[1])
	fmt.Printf("%8.3e\t\t= L2 Error\n", r.L2Error)
	fmt.Printf("%8.3e\t\t= Max Error\n", r.MaxError)
	fmt.Printf("%8.3e\t\t= Residual\n", r.Residual)
	fmt.Printf("%v\t= Elapsed\n", r.Elapsed)
}
