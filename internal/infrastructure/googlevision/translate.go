package googlevision

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/translate"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"damage-vision/internal/domain/port"
)

// Человекочитаемые названия языков, встречающихся в страховых документах.
var languageNames = map[string]string{
	"si": "Sinhala",
	"ta": "Tamil",
	"en": "English",
	"hi": "Hindi",
}

// TranslateClient адаптер Google Cloud Translation API.
type TranslateClient struct {
	api *translate.Client
	log *zap.Logger
}

var _ port.Translator = (*TranslateClient)(nil)

// NewTranslateClient создаёт клиента Translation API по файлу сервисного
// аккаунта. Пустой путь означает Application Default Credentials.
func NewTranslateClient(ctx context.Context, credentialsFile string, log *zap.Logger) (*TranslateClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	api, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &TranslateClient{api: api, log: log}, nil
}

// Close освобождает соединение с API.
func (t *TranslateClient) Close() error { return t.api.Close() }

// Translate переводит текст на целевой язык и определяет исходный.
func (t *TranslateClient) Translate(ctx context.Context, text, targetLanguage string) (string, string, error) {
	if strings.TrimSpace(text) == "" {
		return "", "", nil
	}

	target, err := language.Parse(targetLanguage)
	if err != nil {
		target = language.English
	}

	translations, err := t.api.Translate(ctx, []string{text}, target, &translate.Options{
		Format: translate.Text,
	})
	if err != nil {
		return "", "", fmt.Errorf("translate text: %w", err)
	}
	if len(translations) == 0 {
		return "", "", fmt.Errorf("empty translation response")
	}

	tr := translations[0]
	source := LanguageName(tr.Source.String())

	t.log.Debug("text translated",
		zap.String("source", source),
		zap.Int("chars", len(text)))
	return tr.Text, source, nil
}

// LanguageName переводит код языка в его название; незнакомые коды
// возвращаются как есть.
func LanguageName(code string) string {
	base := strings.ToLower(code)
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	if name, ok := languageNames[base]; ok {
		return name
	}
	return code
}
