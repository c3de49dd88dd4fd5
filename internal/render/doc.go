// Package render drives the per-frame acquire, record, submit and present
// cycle of a swapchain, independent of the graphics binding underneath.
//
// A Loop owns a Swapchain and a fixed ring of frame slots. Each RunFrame
// waits on the current slot's fence, renders into the acquired image and
// presents it. When the surface reports out-of-date or suboptimal, or the
// window signals a resize, the swapchain is rebuilt before the next frame.
package render
