// Package toast provides feedback notifications for userpages.
//
// Toasts are emitted as a named event to whatever delivers them: the
// server queues them on the browser session, renders pending toasts on the
// next page load and pushes them to connected WebSocket clients.
//
// # Client-Side Handler
//
//	const ws = new WebSocket("/ws/profile");
//	ws.addEventListener("message", (e) => {
//	    const msg = JSON.parse(e.data);
//	    if (msg.event === "userpages:toast") {
//	        showToast(msg.data.level, msg.data.message);
//	    }
//	});
//
// # Server-Side Usage
//
//	toast.Success(sess, "Profile updated successfully!")
//
// Save outcomes map onto toasts directly:
//
//	if t, ok := toast.FromSave(ctrl.Snapshot().Save); ok {
//	    t.Show(sess)
//	}
package toast
