package scoring

// Indicator vocabulary for the scored policy. Entries are matched as
// substrings of the lower-cased message, the same way for both languages.
var meaningfulVocabulary = map[string][]string{
	"questions_ru": {"что", "как", "где", "когда", "почему", "зачем", "кто", "какой", "какая", "какие"},
	"actions_ru":   {"делаю", "работаю", "учусь", "читаю", "смотрю", "слушаю", "иду", "еду", "летаю"},
	"emotions_ru":  {"нравится", "люблю", "радуюсь", "грущу", "злюсь", "удивляюсь", "боюсь"},
	"time_ru":      {"сегодня", "завтра", "вчера", "утром", "вечером", "ночью", "днем"},
	"places_ru":    {"дом", "работа", "университет", "школа", "магазин", "кафе", "ресторан"},
	"general_ru":   {"хорошо", "плохо", "интересно", "сложно", "легко", "быстро", "медленно"},

	"questions_en": {"what", "how", "where", "when", "why", "who", "which"},
	"actions_en":   {"doing", "working", "studying", "reading", "watching", "listening", "going"},
	"emotions_en":  {"like", "love", "happy", "sad", "angry", "surprised", "afraid"},
	"time_en":      {"today", "tomorrow", "yesterday", "morning", "evening", "night"},
	"places_en":    {"home", "work", "university", "school", "shop", "cafe", "restaurant"},
	"general_en":   {"good", "bad", "interesting", "difficult", "easy", "fast", "slow"},
}

var spamVocabulary = []string{
	"спам", "реклама", "купить", "продать", "заработок", "деньги", "бонус", "приз",
	"выигрыш", "лотерея", "казино", "ставки", "кредит", "займ", "микрозайм",
	"работа на дому", "подработка", "доход", "прибыль", "инвестиции",

	"spam", "advertisement", "buy", "sell", "earnings", "money", "bonus", "prize",
	"win", "lottery", "casino", "betting", "credit", "loan", "microloan",
	"work from home", "part-time", "income", "profit", "investment",
}

var (
	questionMarkers = []string{
		"?", "что", "как", "где", "когда", "почему", "зачем", "кто", "какой",
		"what", "how", "where", "when", "why", "who", "which",
	}
	greetingMarkers = []string{
		"привет", "здравствуй", "добрый день", "доброе утро", "добрый вечер",
		"hello", "hi", "good morning", "good evening", "good afternoon",
	}
	farewellMarkers = []string{
		"пока", "до свидания", "до встречи", "увидимся", "прощай",
		"bye", "goodbye", "see you", "farewell",
	}
	thanksMarkers  = []string{"спасибо", "благодарю", "thank you", "thanks"}
	emotionMarkers = []string{
		"рад", "счастлив", "грустно", "злюсь", "удивлен", "боюсь",
		"happy", "sad", "angry", "surprised", "afraid",
	}
)
