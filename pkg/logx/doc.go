// Package logx configures the bridge's structured logging.
//
// Logger is a small value type on top of zerolog:
//   - console output stays readable (short timestamp + short caller)
//   - the optional file sink is JSON
//   - the optional Telegram sink forwards warnings to an operator chat,
//     filtered by a minimum level and rate limited
package logx
