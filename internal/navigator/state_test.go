package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/mixreview/internal/models"
)

func version(id int64, number int, favourite bool) models.Version {
	return models.Version{ID: id, VersionNumber: number, Favourite: favourite}
}

func project(songs ...models.Song) *models.Project {
	return &models.Project{ID: "p1", Title: "Demo", ShareLink: "abc123", Songs: songs}
}

func TestAutoSelect(t *testing.T) {
	tests := []struct {
		name     string
		versions []models.Version
		previous int64
		want     int64
		branch   Selection
	}{
		{"no versions", nil, 0, 0, SelectNone},
		{"previous still present", []models.Version{version(1, 1, true), version(2, 2, false)}, 2, 2, SelectPrevious},
		{"previous gone, favourite", []models.Version{version(1, 1, true), version(2, 2, false)}, 99, 1, SelectFavourite},
		{"no previous, favourite", []models.Version{version(1, 1, false), version(2, 2, true), version(3, 3, false)}, 0, 2, SelectFavourite},
		{"highest number", []models.Version{version(5, 2, false), version(7, 4, false), version(6, 3, false)}, 0, 7, SelectLatest},
		{"previous from another song", []models.Version{version(1, 1, false), version(2, 2, false)}, 300, 2, SelectLatest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, branch := AutoSelect(&models.Song{ID: 1, Versions: tt.versions}, tt.previous)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.branch, branch)
		})
	}
}

func TestEnterSongLoadsSelectedVersion(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, true)}})
	s := State{Console: Admin, View: ProjectDetail, Project: p}

	next, effects := Transition(s, SongOpened{Project: p, SongID: 10})
	assert.Equal(t, SongDetail, next.View)
	assert.Equal(t, int64(101), next.VersionID)
	assert.Equal(t, []Effect{
		LoadVersion{VersionID: 101},
		LoadComments{SongID: 10, VersionID: 101},
	}, effects)
}

func TestEnterSongWithoutVersions(t *testing.T) {
	p := project(models.Song{ID: 10})
	s := State{Console: Admin, View: ProjectDetail, Project: p}

	next, effects := Transition(s, SongOpened{Project: p, SongID: 10})
	assert.Equal(t, SongDetail, next.View)
	assert.Zero(t, next.VersionID)
	assert.Equal(t, []Effect{TeardownPlayer{}, ClearComments{}}, effects)
}

func TestReenterSongForgetsVersion(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, true)}})
	s := State{Console: Admin, View: ProjectDetail, Project: p}

	s, _ = Transition(s, SongOpened{Project: p, SongID: 10})
	s, _ = Transition(s, VersionSelected{VersionID: 100})
	s, effects := Transition(s, BackPressed{})
	assert.Equal(t, ProjectDetail, s.View)
	assert.Equal(t, []Effect{TeardownPlayer{}, ClearComments{}}, effects)

	s, effects = Transition(s, SongOpened{Project: p, SongID: 10})
	assert.Equal(t, int64(101), s.VersionID, "leaving the song drops the selection, the favourite wins")
	assert.Equal(t, []Effect{
		LoadVersion{VersionID: 101},
		LoadComments{SongID: 10, VersionID: 101},
	}, effects)
}

func TestReenterSongForgetsVersionWithoutFavourite(t *testing.T) {
	p := project(
		models.Song{ID: 9},
		models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, false)}},
	)
	s := State{Console: Public, View: ProjectDetail, Project: p}

	s, _ = Transition(s, SongOpened{Project: p, SongID: 10})
	s, _ = Transition(s, VersionSelected{VersionID: 100})
	s, _ = Transition(s, BackPressed{})
	require.Equal(t, ProjectDetail, s.View)

	s, _ = Transition(s, SongOpened{Project: p, SongID: 10})
	assert.Equal(t, int64(101), s.VersionID, "highest version number wins")
}

func TestReopenSameSongKeepsVersion(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, true)}})
	s, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})
	s, _ = Transition(s, VersionSelected{VersionID: 100})

	s, effects := Transition(s, SongOpened{Project: p, SongID: 10})
	assert.Equal(t, int64(100), s.VersionID)
	assert.Equal(t, []Effect{LoadComments{SongID: 10, VersionID: 100}}, effects)
}

func TestSelectVersionPreservesPlayback(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, false)}})
	s, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})
	require.Equal(t, int64(101), s.VersionID)

	next, effects := Transition(s, VersionSelected{VersionID: 100})
	assert.Equal(t, int64(100), next.VersionID)
	assert.Equal(t, []Effect{
		LoadVersion{VersionID: 100, Preserve: true},
		LoadComments{SongID: 10, VersionID: 100},
	}, effects)

	same, effects := Transition(next, VersionSelected{VersionID: 100})
	assert.Equal(t, next, same)
	assert.Empty(t, effects)

	unknown, effects := Transition(next, VersionSelected{VersionID: 555})
	assert.Equal(t, next, unknown)
	assert.Empty(t, effects)
}

func TestLeavingSongTearsDownFirst(t *testing.T) {
	p := project(
		models.Song{ID: 10, Versions: []models.Version{version(100, 1, false)}},
		models.Song{ID: 11},
	)
	inSong, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})

	events := []Event{BackPressed{}, SettingsOpened{}, ProjectListOpened{}, ProjectOpened{Project: p}}
	for _, e := range events {
		next, effects := Transition(inSong, e)
		assert.NotEqual(t, SongDetail, next.View)
		assert.Zero(t, next.VersionID)
		require.NotEmpty(t, effects)
		assert.Equal(t, TeardownPlayer{}, effects[0])
	}
}

func TestSettingsReturnsToProjectList(t *testing.T) {
	p := project(models.Song{ID: 10})
	s := State{Console: Admin, View: ProjectDetail, Project: p}

	s, effects := Transition(s, SettingsOpened{})
	assert.Equal(t, Settings, s.View)
	assert.Empty(t, effects)

	s, _ = Transition(s, BackPressed{})
	assert.Equal(t, ProjectList, s.View)
	assert.Nil(t, s.Project)
}

func TestPublicConsoleRestrictions(t *testing.T) {
	single := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false)}})
	s := State{Console: Public, View: ProjectDetail, Project: single}

	for _, e := range []Event{SettingsOpened{}, ProjectListOpened{}, BackPressed{}} {
		next, effects := Transition(s, e)
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	}

	inSong, _ := Transition(s, SongOpened{Project: single, SongID: 10})
	assert.False(t, inSong.CanGoBack(), "single-song projects hide back")

	multi := project(models.Song{ID: 10}, models.Song{ID: 11})
	inSong, _ = Transition(State{Console: Public, View: ProjectDetail, Project: multi}, SongOpened{Project: multi, SongID: 11})
	assert.True(t, inSong.CanGoBack())
}

func TestVersionRemovedClearsPointer(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, true)}})
	s, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})
	require.Equal(t, int64(101), s.VersionID)

	next, effects := Transition(s, VersionRemoved{VersionID: 101})
	assert.Zero(t, next.VersionID)
	assert.Equal(t, []Effect{TeardownPlayer{}, ClearComments{}}, effects)

	// another version: nothing to tear down
	other, effects := Transition(s, VersionRemoved{VersionID: 100})
	assert.Equal(t, int64(101), other.VersionID)
	assert.Empty(t, effects)

	// the reload after the delete auto-selects again
	reloaded := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false)}})
	final, effects := Transition(next, ProjectReloaded{Project: reloaded})
	assert.Equal(t, int64(100), final.VersionID)
	assert.Equal(t, []Effect{
		LoadVersion{VersionID: 100},
		LoadComments{SongID: 10, VersionID: 100},
	}, effects)
}

func TestProjectReloadKeepsLoadedVersion(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, false)}})
	s, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})
	s, _ = Transition(s, VersionSelected{VersionID: 100})

	// favourite flag moved to 101 on the server; the loaded version stays
	reloaded := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false), version(101, 2, true)}})
	next, effects := Transition(s, ProjectReloaded{Project: reloaded})
	assert.Equal(t, int64(100), next.VersionID)
	assert.Same(t, reloaded, next.Project)
	assert.Equal(t, []Effect{LoadComments{SongID: 10, VersionID: 100}}, effects)
}

func TestSongRemoved(t *testing.T) {
	p := project(models.Song{ID: 10, Versions: []models.Version{version(100, 1, false)}})
	s, _ := Transition(State{View: ProjectDetail, Project: p}, SongOpened{Project: p, SongID: 10})

	next, effects := Transition(s, SongRemoved{SongID: 10})
	assert.Equal(t, ProjectDetail, next.View)
	assert.Equal(t, []Effect{TeardownPlayer{}, ClearComments{}}, effects)

	// a reload that lost the open song also leaves it
	gone, effects := Transition(s, ProjectReloaded{Project: project()})
	assert.Equal(t, ProjectDetail, gone.View)
	assert.Equal(t, []Effect{TeardownPlayer{}, ClearComments{}}, effects)
}

func TestProjectRemoved(t *testing.T) {
	p := project()
	s := State{Console: Admin, View: ProjectDetail, Project: p}

	next, _ := Transition(s, ProjectRemoved{ProjectID: "other"})
	assert.Equal(t, s, next)

	next, _ = Transition(s, ProjectRemoved{ProjectID: "p1"})
	assert.Equal(t, ProjectList, next.View)
	assert.Nil(t, next.Project)
}
