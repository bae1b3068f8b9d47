// Package action tracks the lifecycle of a single write operation.
//
// An Action bundles Idle/Saving/Done/Failed state, sequence-tagged
// settlement and a concurrency policy into one unit, independent of any
// load state the caller also keeps.
//
//	save := action.New(
//	    func(ctx context.Context, p model.UserProfile) (model.ProfilePatch, error) {
//	        return svc.UpdateUserProfile(ctx, model.PatchOf(p))
//	    },
//	    action.DropWhileRunning(),
//	    action.SuccessMessage("Profile updated successfully!"),
//	    action.FailureFallback("Update failed"),
//	)
//
//	st, _ := save.Run(ctx, draft)
//	fmt.Println(st.Status, st.Message)
package action
