/*
Package gathersdk is a client for the gather attendance service.

An SDKClient covers the public endpoints. Registering an account returns a
Session, which carries the account's bearer token and exposes every
authenticated operation:

	client := gathersdk.NewSDKClient("http://localhost:8080")

	session, err := client.Register(ctx, "Maria", "+593981111111")
	ev, err := session.CreateEvent(ctx, "Asado")
	inv, err := session.Invite(ctx, ev.ID, []gathersdk.Contact{{Phone: "0991234567"}})

Errors returned by the service are *APIError values; use IsCode to branch on
them:

	if gathersdk.IsCode(err, gathersdk.ErrorCodeNotFound) { ... }

Live views are served as server-sent events. WatchEvent and
WatchNotifications call a function for every snapshot until the context is
cancelled or the function returns false.
*/
package gathersdk
