package dialog

const (
	textWelcome = "👋 <b>Welcome!</b>\n\n" +
		"Send me a title and I will look it up in the catalog, " +
		"or tap the button below to search inline."
	textSearchButton   = "🔍 Search"
	textRefineButton   = "🔍 Refine search"
	textNotFound       = "😔 Nothing found."
	textManyFound      = "🔎 Found %d matches for <b>%s</b>. Tap the button to pick one."
	textUnauthorized   = "⛔ This command is available to operators only."
	textInvalidInput   = "❌ Invalid input."
	textFailure        = "⚠️ Something went wrong. Please try again later."
	textUnknownCommand = "Unknown command. Send /start to begin."
	textSendTitle      = "Send me a title to search."
	textInvalidID      = "invalid id"
	textNothingActive  = "Nothing to cancel."
	textCancelled      = "❌ Cancelled."
	textChooseLanguage = "🌐 Choose your language:"
	textLanguageSet    = "✅ Language updated."
	textAdminPanel     = "🛠 Operator panel"
	textStats          = "📊 <b>Statistics</b>\n\n👥 Users: %d\n🎬 Entries: %d"
	textCatalogEmpty   = "The catalog is empty."
	textManageHeader   = "🗂 <b>Catalog</b> (%d entries)"
	textDeleted        = "🗑 Entry #%d deleted."
)

// languages offered by /lang, in menu order.
var languages = []struct{ Code, Label string }{
	{"uz", "🇺🇿 O'zbekcha"},
	{"ru", "🇷🇺 Русский"},
	{"en", "🇬🇧 English"},
}
