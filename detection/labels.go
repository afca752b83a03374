package detection

// labelsJA maps the 80 COCO class names the model emits to Japanese.
var labelsJA = map[string]string{
	"person":         "人",
	"bicycle":        "自転車",
	"car":            "車",
	"motorcycle":     "バイク",
	"airplane":       "飛行機",
	"bus":            "バス",
	"train":          "電車",
	"truck":          "トラック",
	"boat":           "ボート",
	"traffic light":  "信号機",
	"fire hydrant":   "消火栓",
	"stop sign":      "停止標識",
	"parking meter":  "パーキングメーター",
	"bench":          "ベンチ",
	"bird":           "鳥",
	"cat":            "猫",
	"dog":            "犬",
	"horse":          "馬",
	"sheep":          "羊",
	"cow":            "牛",
	"elephant":       "象",
	"bear":           "熊",
	"zebra":          "シマウマ",
	"giraffe":        "キリン",
	"backpack":       "リュックサック",
	"umbrella":       "傘",
	"handbag":        "ハンドバッグ",
	"tie":            "ネクタイ",
	"suitcase":       "スーツケース",
	"frisbee":        "フリスビー",
	"skis":           "スキー",
	"snowboard":      "スノーボード",
	"sports ball":    "スポーツボール",
	"kite":           "凧",
	"baseball bat":   "野球バット",
	"baseball glove": "野球グローブ",
	"skateboard":     "スケートボード",
	"surfboard":      "サーフボード",
	"tennis racket":  "テニスラケット",
	"bottle":         "ボトル",
	"wine glass":     "ワイングラス",
	"cup":            "カップ",
	"fork":           "フォーク",
	"knife":          "ナイフ",
	"spoon":          "スプーン",
	"bowl":           "ボウル",
	"banana":         "バナナ",
	"apple":          "りんご",
	"sandwich":       "サンドイッチ",
	"orange":         "オレンジ",
	"broccoli":       "ブロッコリー",
	"carrot":         "にんじん",
	"hot dog":        "ホットドッグ",
	"pizza":          "ピザ",
	"donut":          "ドーナツ",
	"cake":           "ケーキ",
	"chair":          "椅子",
	"couch":          "ソファ",
	"potted plant":   "鉢植え",
	"bed":            "ベッド",
	"dining table":   "ダイニングテーブル",
	"toilet":         "トイレ",
	"tv":             "テレビ",
	"laptop":         "ノートパソコン",
	"mouse":          "マウス",
	"remote":         "リモコン",
	"keyboard":       "キーボード",
	"cell phone":     "携帯電話",
	"microwave":      "電子レンジ",
	"oven":           "オーブン",
	"toaster":        "トースター",
	"sink":           "シンク",
	"refrigerator":   "冷蔵庫",
	"book":           "本",
	"clock":          "時計",
	"vase":           "花瓶",
	"scissors":       "はさみ",
	"teddy bear":     "テディベア",
	"hair drier":     "ヘアドライヤー",
	"toothbrush":     "歯ブラシ",
}

// Translate returns the Japanese name for label, or label itself when the
// table has no entry.
func Translate(label string) string {
	if ja, ok := labelsJA[label]; ok {
		return ja
	}
	return label
}
