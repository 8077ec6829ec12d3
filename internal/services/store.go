package services

import "tally/internal/sheets"

// Store is the full transaction store surface the services orchestrate.
// Every backend (memory, spreadsheet, sqlite) satisfies it.
type Store interface {
	sheets.ExpenseAppender
	sheets.IncomeAppender
	sheets.ExpenseLister
	sheets.IncomeLister
	sheets.ExpenseUpdater
	sheets.ExpenseDeleter
	sheets.IncomeUpdater
	sheets.IncomeDeleter
}
