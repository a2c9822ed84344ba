package moderation

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"post-feed-service/internal/domain"
)

// Dictionary — неизменяемый словарь запрещённых слов, загружаемый один раз
// при старте процесса.
type Dictionary struct {
	words []string
}

var _ domain.ModerationDictionary = (*Dictionary)(nil)

// LoadDictionary читает словарь из файла: одно слово на строку,
// регистр приводится к нижнему при загрузке.
func LoadDictionary(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие словаря: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("чтение словаря: %w", err)
	}
	return &Dictionary{words: words}, nil
}

// NewDictionary строит словарь из готового списка слов.
func NewDictionary(words []string) *Dictionary {
	lowered := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		lowered = append(lowered, word)
	}
	return &Dictionary{words: lowered}
}

// IsTextAllowed проверяет текст на вхождение запрещённых слов
// без учёта регистра.
func (d *Dictionary) IsTextAllowed(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range d.words {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}

// Size возвращает количество слов в словаре.
func (d *Dictionary) Size() int {
	return len(d.words)
}
