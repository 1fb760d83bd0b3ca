package lesson

import "strings"

// Grade scores the day 1 diagnostic and returns the day the student should
// start from:
//
//	q1 wrong         → 1 (print basics)
//	q1 right, q2 not → 2 (variables and operators)
//	both right       → 3 (straight to sequences)
//
// q1 asks for code that prints Hello; double quotes are accepted. q2 asks for
// a one-liner assigning 5 to a and 3 to b and printing their sum; spacing is
// ignored.
func Grade(q1, q2 string) int {
	if strings.ReplaceAll(strings.TrimSpace(q1), `"`, "'") != "print('Hello')" {
		return 1
	}
	compact := strings.ReplaceAll(q2, " ", "")
	for _, part := range []string{"a=5", "b=3", "print(a+b)"} {
		if !strings.Contains(compact, part) {
			return 2
		}
	}
	return 3
}
