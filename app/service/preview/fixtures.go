package preview

// overrides are canned previews for known demo links, served without touching the network.
var overrides = map[string]LinkPreviewMeta{
	"https://news.mt.co.kr/mtview.php?no=2025082813314052084": {
		URL:         "https://news.mt.co.kr/mtview.php?no=2025082813314052084",
		SiteName:    "머니투데이",
		Title:       "예시) 8월 28일 경제 이슈 총정리",
		Description: "금리·주식·환율 등 핵심 포인트를 한 번에 정리했습니다.",
		Image:       "https://img.mt.co.kr/mt_static/img/mt_fb_share.png",
		Favicon:     "https://news.mt.co.kr/favicon.ico",
	},
	"https://www.yna.co.kr/view/AKR20250828028000017?input=1195m": {
		URL:         "https://www.yna.co.kr/view/AKR20250828028000017?input=1195m",
		SiteName:    "연합뉴스",
		Title:       "예시) 정부, 새로운 발표…주요 내용은?",
		Description: "정책 방향과 향후 일정에 대한 개요를 담았습니다.",
		Image:       "https://img.yna.co.kr/etc/logo/og_yna.png",
		Favicon:     "https://www.yna.co.kr/favicon.ico",
	},
}
