package handlers

import "fmt"

const (
	textWelcome = "👋 Hi! I help the studio with posts, events and media.\nPick an action below or see /help."
	textHelp    = "<b>What I can do</b>\n" +
		"/post - generate a post from a topic\n" +
		"/events - upcoming events\n" +
		"/media [query] - search the media directory\n" +
		"/cancel - abandon the current form\n" +
		"Send photos (up to %d at once) to get them watermarked."
	textHelpAdmin = "\n\n<b>Admin</b>\n" +
		"/add_event - add an event\n" +
		"/delete_event &lt;id&gt; - delete an event\n" +
		"/add_media name | description - add a media entry\n" +
		"/admit &lt;handle&gt; - whitelist a user\n" +
		"/restart - restart the bot"

	textNoEvents       = "📭 No events yet."
	textEventsTitle    = "<b>📅 Events</b>"
	textEventCreated   = "✅ Event #%s created."
	textEventDeleted   = "🗑 Event #%s deleted."
	textEventNotFound  = "🔍 Event #%s not found."
	textDeleteUsage    = "Usage: /delete_event &lt;id&gt;"
	textMediaTitle     = "<b>🗂 Media</b>"
	textMediaEmpty     = "🔍 Nothing found."
	textMediaUsage     = "Usage: /add_media name | description"
	textMediaAdded     = "✅ Media entry added."
	textAdmitUsage     = "Usage: /admit &lt;handle&gt;"
	textAdmitted       = "✅ %s can now use the bot."
	textAlreadyAdmit   = "ℹ️ %s is already whitelisted."
	textPostFailed     = "😔 Sorry, I could not generate a post right now."
	textPhotoFailed    = "😔 Sorry, I could not process the photos."
	textNoLogo         = "😔 Watermarking is unavailable: the logo is not configured."
	textRestartAsk     = "🔄 Restart the bot?"
	textRestartRunning = "⏳ Requesting restart…"
	textRestartCancel  = "Restart cancelled."
	textRestartOK      = "✅ Restart requested."
	textRestartRefused = "❌ The agent refused the restart."
	textRestartFailed  = "❌ Restart request failed: %s"
	textFormCancelled  = "Form cancelled."
	textNothingCancel  = "Nothing to cancel."
	textUnknownCommand = "🤷 Unknown command. See /help."
	textUnsupported    = "Unsupported action"
	textAdminsOnly     = "⛔ This action is for admins only."
	textSlowDown       = "⏳ Slow down a little."

	labelPost     = "✍️ Generate post"
	labelEvents   = "📅 Events"
	labelMedia    = "🗂 Media"
	labelAddEvent = "➕ Add event"
	labelConfirm  = "✅ Restart"
	labelCancel   = "❌ Cancel"
)

// TooManyPhotosText is the single reply to an oversized batch.
func TooManyPhotosText(got, max int) string {
	return fmt.Sprintf("⚠️ Too many photos: %d. Send at most %d at once.", got, max)
}
