// Package i18n localizes fixed user-facing messages.
//
// Messages are keyed by their English text. Only keys registered here are
// passed through a message.Printer; any other text (validation details,
// normalized upstream messages) is returned untouched so that user-supplied
// '%' sequences are never interpreted as format verbs.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

var japanese = map[string]string{
	"Rate limit exceeded. Please try again later. Please wait %d second(s).": "リクエストが多すぎます。しばらくしてから再度お試しください。%d秒お待ちください。",
	"Unauthorized: No token provided":                                        "認証エラー: トークンがありません",
	"Unauthorized: Invalid token":                                            "認証エラー: 無効なトークンです",
	"Missing required fields: country, mainFood, mainDish":                   "必須項目が不足しています: country, mainFood, mainDish",
	"No recipe generated":                                                    "レシピが生成されませんでした",
	"Recipe service timed out":                                               "レシピ生成サービスがタイムアウトしました",
	"Failed to reach recipe service":                                         "レシピ生成サービスに接続できませんでした",
	"Invalid response from recipe service":                                   "レシピ生成サービスの応答が不正です",
	"No dishes registered for this stage":                                    "この段階で選べる料理が登録されていません",
	"Spin already in progress":                                               "ルーレットは回転中です",
	"Roulette is already complete":                                           "ルーレットはすでに完了しています",
	"Could not load roulette options":                                        "ルーレットの候補を読み込めませんでした",
	"Roulette was reset during the spin":                                     "回転中にルーレットがリセットされました",
	"invalid region":                                                         "地域が不正です",
	"session not found":                                                      "セッションが見つかりません",
	"dish not found":                                                         "料理が見つかりません",
	"recipe not found":                                                       "レシピが見つかりません",
	"user not found":                                                         "ユーザーが見つかりません",
	"internal error":                                                         "内部エラーが発生しました",
	"rate limit exceeded":                                                    "リクエスト制限を超えました",
}

func init() {
	for k, v := range japanese {
		_ = message.SetString(language.Japanese, k, v)
		_ = message.SetString(language.English, k, k)
	}
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Known reports whether key has a registered translation.
func Known(key string) bool {
	_, ok := japanese[key]
	return ok
}

// Translate renders key for tag. Unknown keys are returned verbatim.
func Translate(tag language.Tag, key string, args ...any) string {
	if !Known(key) {
		return key
	}
	return message.NewPrinter(tag).Sprintf(key, args...)
}
