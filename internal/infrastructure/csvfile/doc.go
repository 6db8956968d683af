// Package csvfile stores a collection of records as one CSV file with a
// header row.
//
// A Table is loaded and saved whole. Saves go to a temporary file in the
// same directory which is then renamed over the original, so readers never
// observe a half-written file. Rows are addressed by column name; columns
// present in the file but unknown to the caller are dropped on the next
// save, and columns the file lacks read as empty strings.
//
// Usage:
//
//	t, err := csvfile.Open("data/users.csv", []string{"id", "name", "email"})
//	if err != nil {
//	    return err
//	}
//	err = t.Update(func(rows []csvfile.Row) ([]csvfile.Row, error) {
//	    return append(rows, csvfile.Row{"id": "1", "name": "Ana"}), nil
//	})
package csvfile
