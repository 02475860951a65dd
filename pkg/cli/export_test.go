package cli

var (
	PrintCatalog   = printCatalog
	PrintIndexDiff = printIndexDiff
)
