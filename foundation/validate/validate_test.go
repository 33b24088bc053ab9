package validate_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type record struct {
	Hash  *string `json:"hash" validate:"required,hash256"`
	Owner string  `json:"owner" validate:"required"`
}

func Test_Check(t *testing.T) {
	good := "816534932c2b7154836da6afc367695e6337db8a921823784c14378abed4f7d7"
	upper := "816534932C2B7154836DA6AFC367695E6337DB8A921823784C14378ABED4F7D7"
	short := "8165"

	type table struct {
		name   string
		val    record
		fields []string
	}

	tt := []table{
		{name: "valid", val: record{Hash: &good, Owner: "node"}},
		{name: "missing", val: record{Owner: "node"}, fields: []string{"hash"}},
		{name: "uppercase", val: record{Hash: &upper, Owner: "node"}, fields: []string{"hash"}},
		{name: "short", val: record{Hash: &short}, fields: []string{"hash", "owner"}},
	}

	t.Log("Given the need to validate models.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen checking a %s record.", testID, tst.name)
				{
					err := validate.Check(tst.val)

					if len(tst.fields) == 0 {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
						return
					}

					if !validate.IsFieldErrors(err) {
						t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
					}

					fields := validate.GetFieldErrors(err).Fields()
					if len(fields) != len(tst.fields) {
						t.Fatalf("\t%s\tTest %d:\tShould fail on %v: %v", failed, testID, tst.fields, fields)
					}
					for _, name := range tst.fields {
						if _, exists := fields[name]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould fail on field %q: %v", failed, testID, name, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould fail on %v.", success, testID, tst.fields)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
