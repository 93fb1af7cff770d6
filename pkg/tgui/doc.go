// Package tgui provides small Telegram UI helpers on top of packages button
// and markup:
//   - keyboard row builders with split, confirm and pager rows
//   - callback data helpers (plugin:action:payload) and a token store for
//     payloads over the 64 byte limit
//   - a message builder with HTML escaping and attached markup
package tgui
