// Package push turns inbound push payloads into displayed notifications
// and routes clicks on them to an existing or new browser window.
//
// Payloads are best-effort JSON: a structured payload supplies title,
// body and target URL; anything else is shown verbatim under the
// default title. Display parameters are fixed so repeated notifications
// replace each other instead of stacking.
package push
