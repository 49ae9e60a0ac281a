package domain

// SceneItem is one entry of an OBS scene's item list
type SceneItem struct {
	SourceName  string `json:"sourceName"`
	SceneItemID int64  `json:"sceneItemId"`
}

// OverlayTarget names the warning overlay inside OBS
type OverlayTarget struct {
	SceneName  string
	SourceName string
}
