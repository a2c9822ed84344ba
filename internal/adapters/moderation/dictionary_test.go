package moderation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDictionaryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "Spam\n\n  scam  \nFRAUD\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("не удалось записать словарь: %v", err)
	}

	dictionary, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку загрузки: %v", err)
	}
	if dictionary.Size() != 3 {
		t.Fatalf("ожидали 3 слова, получили %d", dictionary.Size())
	}
	if dictionary.IsTextAllowed("это точно SCAM и ничего больше") {
		t.Fatalf("ожидали запрет текста со словом из словаря")
	}
	if !dictionary.IsTextAllowed("обычный безобидный текст") {
		t.Fatalf("ожидали разрешение чистого текста")
	}
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	if _, err := LoadDictionary("/nonexistent/words.txt"); err == nil {
		t.Fatalf("ожидали ошибку для несуществующего файла")
	}
}

func TestIsTextAllowedCaseInsensitiveSubstring(t *testing.T) {
	dictionary := NewDictionary([]string{"badword"})

	if dictionary.IsTextAllowed("prefixBADWORDsuffix") {
		t.Fatalf("ожидали запрет по вхождению подстроки без учёта регистра")
	}
	if !dictionary.IsTextAllowed("badwor d") {
		t.Fatalf("не ожидали запрета без полного вхождения")
	}
}

func TestEmptyDictionaryAllowsEverything(t *testing.T) {
	dictionary := NewDictionary(nil)
	if !dictionary.IsTextAllowed("любой текст") {
		t.Fatalf("пустой словарь должен разрешать всё")
	}
}
