// Package anthropic implements the block-oriented streaming dialect:
// explicit content_block_start / content_block_delta / content_block_stop
// markers per block, a system prompt carried outside the message list, and
// x-api-key authentication. The external decoding contract matches the
// index-addressed dialect: exactly one tool-call event per completed call,
// with fully concatenated arguments, emitted no later than stream end.
package anthropic
