package tghtml

// MaxMessageLen is Telegram's text message size limit in UTF-16 code units.
// Plain counting of runes stays safely below it for the content this bot
// produces, so renderers cap against this constant directly.
const MaxMessageLen = 4096
