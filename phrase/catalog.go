package phrase

// 默认兜底弹幕，任何选择失败时使用
const DefaultPhrase = "主播好！"

var fallbackByCategory = map[string][]string{
	"游戏": {
		"这波操作可以啊", "666666", "主播带带我", "这装备怎么配的", "下把一定赢",
		"前面有人！", "好家伙，极限反杀", "这都能输？", "稳住别浪",
	},
	"唱歌": {
		"好听！", "再来一首", "声音好温柔", "这首歌我也喜欢", "单曲循环了",
		"高音稳得一批", "点歌点歌",
	},
	"美食": {
		"看饿了", "这是什么做法", "求菜谱", "好香啊隔着屏幕都闻到了", "口水流下来了",
	},
	"聊天": {
		"晚上好", "主播今天心情怎么样", "来了来了", "哈哈哈哈哈", "打卡",
		"前排围观", "有人吗", "今天聊点什么",
	},
}

var speakerNames = []string{
	"路过的猫", "夜猫子", "追光者", "一只咸鱼", "快乐星球", "小透明", "打工人",
	"摸鱼专家", "深夜食堂", "云观众", "北极熊", "柠檬精", "吃瓜群众", "晚风",
}

var speakerColors = []string{
	"#ffffff", "#fe0302", "#ff7204", "#ffaa02", "#ffd302", "#00cd00",
	"#00a2ff", "#cc0273", "#89d5ff",
}

var reactionGlyphs = []string{"❤", "👍", "🎉", "😂", "🔥", "✨"}

// Fallback 返回分类对应的兜底弹幕池，未知分类使用聊天分类
func Fallback(category string) []string {
	if pool, ok := fallbackByCategory[category]; ok && len(pool) > 0 {
		return pool
	}
	return fallbackByCategory["聊天"]
}
