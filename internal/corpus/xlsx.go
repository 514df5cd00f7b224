package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"railprep/internal/domain"
	"github.com/xuri/excelize/v2"
)

// LoadXLSX imports questions from a spreadsheet. Expected columns, with a
// header row: subject, difficulty, question, four options, the 1-based
// number of the correct option, explanation. Blank rows are skipped.
func LoadXLSX(path string) ([]domain.Question, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var questions []domain.Question
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isBlankRow(row) {
			continue
		}
		q, err := questionFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func questionFromRow(row []string) (domain.Question, error) {
	if len(row) < 9 {
		return domain.Question{}, fmt.Errorf("expected 9 columns, got %d", len(row))
	}
	correct, err := strconv.Atoi(strings.TrimSpace(row[7]))
	if err != nil || correct < 1 || correct > 4 {
		return domain.Question{}, fmt.Errorf("correct option must be 1-4, got %q", row[7])
	}
	tier := domain.Difficulty(strings.TrimSpace(row[1]))
	if tier != "" && !tier.Valid() {
		return domain.Question{}, fmt.Errorf("unknown difficulty %q", row[1])
	}
	return domain.Question{
		Subject:       strings.TrimSpace(row[0]),
		Difficulty:    tier,
		Question:      strings.TrimSpace(row[2]),
		Options:       []string{row[3], row[4], row[5], row[6]},
		CorrectAnswer: correct - 1,
		Explanation:   strings.TrimSpace(row[8]),
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
