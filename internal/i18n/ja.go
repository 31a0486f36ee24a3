package i18n

var japanese = map[string]string{
	"Game Review Hub":             "Game Review Hub",
	"Log in":                      "ログイン",
	"Log out":                     "ログアウト",
	"Register":                    "新規登録",
	"Signed in as %s":             "%s としてログイン中",
	"Add game":                    "ゲームを追加",
	"Title":                       "タイトル",
	"Platform (e.g. Switch, PS5)": "プラットフォーム (例: Switch, PS5)",
	"Release date":                "発売日",
	"Add":                         "追加",
	"Games":                       "ゲーム一覧",
	"%d games":                    "全%d件",
	"Sort":                        "ソート",
	"Newest":                      "新着順",
	"Oldest":                      "古い順",
	"Title (A-Z)":                 "タイトル昇順",
	"Title (Z-A)":                 "タイトル降順",
	"Highest rated":               "平均スコア高い順",
	"Lowest rated":                "平均スコア低い順",
	"Apply":                       "適用",
	"Loading...":                  "読み込み中...",
	"No games yet.":               "まだ登録がありません。",
	"Average rating: %.2f":        "平均スコア: %.2f",
	"Released: %s":                "発売日: %s",
	"Rating":                      "スコア",
	"Comment (optional)":          "コメント（任意）",
	"Post review":                 "レビュー投稿",
	"Log in to post reviews":      "レビュー投稿にはログインが必要です",
	"Upload cover":                "カバーをアップロード",
	"Delete cover":                "カバーを削除",
	"Previous":                    "前へ",
	"Next":                        "次へ",
	"Page %d":                     "ページ %d",
	"Email":                       "メールアドレス",
	"Password (8+ characters)":    "パスワード（8文字以上）",
	"You will be taken home after logging in.": "ログイン後、ホームへ移動します。",
	"Game added":                           "追加しました",
	"Review posted":                        "レビューを投稿しました",
	"Cover updated":                        "カバー画像を更新しました",
	"Cover removed":                        "カバー画像を削除しました",
	"Upload failed":                        "アップロードに失敗",
	"Delete failed":                        "削除に失敗",
	"Registered. Please log in.":           "登録しました。続けてログインしてください",
	"Registration failed":                  "登録に失敗",
	"Logged in":                            "ログインしました",
	"Login failed":                         "ログインに失敗",
	"Logged out":                           "ログアウトしました",
	"Something went wrong":                 "エラーが発生しました",
	"login required, please sign in again": "認証が必要です。再ログインしてください",
	"Not found":                            "ページが見つかりません",
	"Back to home":                         "ホームへ戻る",
	"Language":                             "言語",
}
