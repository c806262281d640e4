/*
Package llm is the dialect-neutral core of the chatwire streaming adapter.

It defines the message and event model shared by every wire dialect, the
[Provider] interface implemented by the dialect packages, the error taxonomy
used across the module, and the small pieces of call plumbing that do not
belong to any single dialect: cancellation merging and the progress-sink
bridge.

A completion call flows through the adapter as follows: the host hands the
provider an ordered [ChatMessage] list; the dialect package normalizes it
into its vendor wire shape, issues a streaming HTTP request, and decodes the
response into [StreamEvent] values delivered on a channel. Text deltas are
emitted in arrival order; tool calls are emitted exactly once, fully
reassembled. [Drain] maps the channel onto a host [ProgressSink] and returns
the terminal result.

Cancellation is a silent stop: when the merged abort signal fires the event
channel closes without an error event and without an end event. Transport
and configuration failures surface as typed [*Error] values.
*/
package llm
