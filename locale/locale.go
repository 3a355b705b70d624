package locale

import (
	"embed"
	"io/fs"
	"strings"

	"roulette-bot/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*.toml
var translationFS embed.FS

var (
	i18nBundle    *i18n.Bundle
	i18nLocalizer *i18n.Localizer
)

// InitLocalizer loads the embedded message files and pins the bot to one
// language, falling back to Russian for missing messages.
func InitLocalizer(lang string) error {
	i18nBundle = i18n.NewBundle(language.Russian)
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(translationFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}
		_, err = i18nBundle.LoadMessageFileFS(translationFS, path)
		return err
	})
	if err != nil {
		return err
	}

	i18nLocalizer = i18n.NewLocalizer(i18nBundle, lang, language.Russian.String())
	return nil
}

// I18n renders a message by id. Template values are passed as "Key==Value"
// pairs.
func I18n(key string, params ...string) string {
	if i18nLocalizer == nil {
		logger.Warning("localizer is not initialized")
		return key
	}

	templateData := map[string]any{}
	for _, param := range params {
		pair := strings.SplitN(param, "==", 2)
		if len(pair) == 2 {
			templateData[pair[0]] = pair[1]
		}
	}

	msg, err := i18nLocalizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}
