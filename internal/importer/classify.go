package importer

import (
	"strings"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

// Keyword lists are checked in order: dessert, staple food, side dish. A
// name matching none of them is a main dish.
var (
	dessertKeywords = []string{"ケーキ", "ティラミス", "チュロス", "バクラヴァ", "ラミントン"}

	stapleKeywords = []string{
		"ご飯", "ライス", "うどん", "そば", "パスタ", "フォー", "ナシレマ", "ナシゴレン",
		"チャーハン", "パエリア", "ピザ", "ナン", "インジェラ", "ジョロフライス", "プーティン",
	}

	sideKeywords = []string{
		"サラダ", "キムチ", "ソムタム", "サモサ", "餃子", "春巻", "チヂミ", "プレッツェル",
		"ザワークラウト", "ナチョス", "グァカモレ", "フムス", "ババガヌーシュ", "タブーリ", "ピロシキ",
	}
)

// Classify guesses the category of a dish from its (Japanese) name. Crepes
// only count as dessert when the name also says デザート.
func Classify(name string) domain.Category {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, dessertKeywords),
		strings.Contains(n, "クレープ") && strings.Contains(n, "デザート"):
		return domain.CategoryDessert
	case containsAny(n, stapleKeywords):
		return domain.CategoryStapleFood
	case containsAny(n, sideKeywords):
		return domain.CategorySideDish
	default:
		return domain.CategoryMainDish
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
