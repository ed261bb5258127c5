package scenario

// Step constructors for scenarios written in Go rather than YAML.

// Navigate loads url; a leading "/" is resolved against the base URL.
func Navigate(url string) Step { return Step{Action: ActionNavigate, Value: url} }

// Find waits until locator matches at least one element.
func Find(locator string) Step { return Step{Action: ActionFind, Locator: locator} }

// Type appends text to the value of locator.
func Type(locator, text string) Step {
	return Step{Action: ActionType, Locator: locator, Value: text}
}

// Clear empties the value of locator.
func Clear(locator string) Step { return Step{Action: ActionClear, Locator: locator} }

// Click clicks the first match of locator.
func Click(locator string) Step { return Step{Action: ActionClick, Locator: locator} }

// WaitFor waits for locator to resolve.
func WaitFor(locator string) Step { return Step{Action: ActionWait, Locator: locator} }

// WaitText waits until the text of locator equals expect.
func WaitText(locator, expect string) Step {
	return Step{Action: ActionWait, Locator: locator, Expect: expect}
}

// ReadText saves the text of locator in the variable save.
func ReadText(locator, save string) Step {
	return Step{Action: ActionReadText, Locator: locator, Save: save}
}

// SnapshotRows captures the rows matched by rows under save.
func SnapshotRows(rows, save string) Step {
	return Step{Action: ActionSnapshotRows, Table: rows, Save: save}
}

// FindRowByName saves the first row whose name cell equals name.
func FindRowByName(rows, name, save string) Step {
	return Step{Action: ActionFindRow, Table: rows, Value: name, Save: save}
}

// FindRowAt saves the row at index, in document order.
func FindRowAt(rows string, index int, save string) Step {
	return Step{Action: ActionFindRow, Table: rows, Index: index, Save: save}
}

// ClickInRow clicks locator inside cell of the saved row.
func ClickInRow(row string, cell int, locator string) Step {
	return Step{Action: ActionClickInRow, Row: row, Cell: cell, Locator: locator}
}

// ReadCell saves the text of cell of the saved row.
func ReadCell(row string, cell int, save string) Step {
	return Step{Action: ActionReadCell, Row: row, Cell: cell, Save: save}
}

// AssertText fails unless the text of locator equals expect.
func AssertText(locator, expect string) Step {
	return Step{Action: ActionAssertText, Locator: locator, Expect: expect}
}

// AssertValue compares an expanded value, typically "${var}", to expect.
func AssertValue(value, expect string) Step {
	return Step{Action: ActionAssertText, Value: value, Expect: expect}
}

// AssertContains fails unless the text of locator contains expect.
func AssertContains(locator, expect string) Step {
	return Step{Action: ActionAssertContains, Locator: locator, Expect: expect}
}

// AssertRowDelta compares the current row count with the baseline snapshot plus delta.
func AssertRowDelta(rows, baseline string, delta int) Step {
	return Step{Action: ActionAssertRowCount, Table: rows, Base: baseline, Delta: delta}
}

// AssertNamePresent fails unless a row's name cell equals name.
func AssertNamePresent(rows, name string) Step {
	return Step{Action: ActionAssertNamePresent, Table: rows, Value: name}
}

// AssertNameAbsent fails when a row's name cell equals name.
func AssertNameAbsent(rows, name string) Step {
	return Step{Action: ActionAssertNameAbsent, Table: rows, Value: name}
}

// Named returns a copy of s with a display name.
func (s Step) Named(name string) Step {
	s.Name = name
	return s
}
