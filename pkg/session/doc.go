/*
Package session implements the framed, identity-tagged message envelope used
on every Tether channel.

A wire message is a multipart frame sequence:

	[identity, identity, ...] <IDS|MSG> [header JSON] [content JSON]

Routing identities are prepended by intermediate sockets and stripped with
FeedIdentities before the payload is unpacked. The header carries a unique
message id, the sender's username (the controller-assigned worker id once
registered), and the message type name. Content is an opaque JSON document
interpreted by the receiver according to the type name.

Producers never build frames by hand: they call Session.Send with a type
name ("registration_request", "unregistration_request", ...) and a content
value, and the session packs the envelope.
*/
package session
